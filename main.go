package main

import (
	"log"

	"github.com/azhovan/rangeprobe/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatalln(err)
	}
}
