package main

import (
	"log"
	"time"

	"git.unix.lgbt/diamondburned/sockinit/sockinit"
)

// The socket paths are well-known: the supervisor binds ours for us, but
// the binary can also run standalone and bind it itself.
const (
	socket  = "service_a_socket"
	bSocket = "service_b_socket"
)

func main() {
	setup()

	// Works with and without socket activation.
	ln, err := sockinit.ListenerOrSelfBind(socket)
	if err != nil {
		log.Fatalln("failed to listen:", err)
	}

	for {
		conn, err := ln.Accept()
		if err != nil {
			log.Fatalln("failed to accept:", err)
		}

		// Spawn a worker that receives requests, calls a function and
		// then sends an answer.
		w := sockinit.NewWorker("A", conn)
		go w.Run(requestB)
	}
}

// requestB asks service B for data on behalf of the current request.
func requestB() {
	log.Println("A needs data from B")

	reply, err := sockinit.Request(bSocket, []byte("Asking for data"))
	if err != nil {
		log.Println("request to B failed:", err)
		return
	}

	log.Printf("got message %q", reply)
}

func setup() {
	log.Println("starting")

	time.Sleep(3 * time.Second)
}
