package main

import (
	"fmt"
	"os"

	"github.com/chatrelay/chat-relay/cmd"
	"github.com/chatrelay/chat-relay/internal/concurrent/atexit"
)

func main() {
	err := cmd.Run()
	atexit.Default().Run()
	if err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}
}
