package main

import (
	"log"
	"time"

	"git.unix.lgbt/diamondburned/sockinit/sockinit"
)

const cSocket = "service_c_socket"

func main() {
	setup()

	// We use socket activation, so the listener always comes from the
	// supervisor; we never bind it ourselves.
	ln, err := sockinit.InheritedListener()
	if err != nil {
		log.Fatalln("no inherited listener:", err)
	}

	for {
		conn, err := ln.Accept()
		if err != nil {
			log.Fatalln("failed to accept:", err)
		}

		w := sockinit.NewWorker("B", conn)
		go w.Run(func() {})
	}
}

func setup() {
	log.Println("starting")

	time.Sleep(2 * time.Second)

	// This service needs data from service C for its setup. The request
	// activates C on demand if it isn't running yet.
	log.Println("B needs data from C for setup")

	reply, err := sockinit.Request(cSocket, []byte("Asking for data"))
	if err != nil {
		log.Fatalln("request to C failed:", err)
	}

	log.Printf("got message %q", reply)
}
