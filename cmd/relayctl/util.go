package main

import (
	"crypto/rand"
	"io"
	"os"
)

func readAllStdin() ([]byte, error) {
	return io.ReadAll(os.Stdin)
}

func readRandom(buf []byte) (int, error) {
	return rand.Read(buf)
}
