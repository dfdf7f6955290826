package main

import (
	"fmt"
	"log"
	"time"

	"git.unix.lgbt/diamondburned/sockinit/sockinit"
)

const aSocket = "service_a_socket"

func main() {
	fmt.Println("Sending request to A")

	now := time.Now()

	reply, err := sockinit.Request(aSocket, []byte("Hello"))
	if err != nil {
		log.Fatalln("request failed:", err)
	}

	fmt.Printf("Received %q after %v\n", reply, time.Since(now))
}
