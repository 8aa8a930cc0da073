package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"socketdrop/internal/shared/logger"
	"socketdrop/internal/shared/types"
)

func main() {
	addr := flag.String("addr", "http://127.0.0.1:8000", "Receiver URL")
	file := flag.String("file", "test.jpg", "File to upload as the image field")
	timeout := flag.Duration("timeout", 30*time.Second, "Request timeout")
	flag.Parse()

	logger.Init(types.LogConf{Level: "warn"})

	data, err := os.ReadFile(*file)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	body, err := Upload(*addr, *file, data, *timeout)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Response from server: %s\n", body)
}
