package main

import (
	"log"
	"time"

	"git.unix.lgbt/diamondburned/sockinit/sockinit"
)

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

		w := sockinit.NewWorker("C", conn)
		go w.Run(func() {})
	}
}

func setup() {
	log.Println("starting")

	time.Sleep(time.Second)
}
