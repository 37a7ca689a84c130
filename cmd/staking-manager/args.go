package main

import (
	"flag"
	"fmt"
	"os"
)

type args struct {
	dataDir string
}

func ParseArgs() (args, error) {
	flag.Usage = func() {
		fmt.Printf("Validator election staking manager.\n\n")
		fmt.Printf("Usage: %s [options]\n", os.Args[0])
		flag.PrintDefaults()
	}
	dataDir := flag.String("data-dir", "data", "Data directory for config and storage")

	flag.Parse()

	return args{
		*dataDir,
	}, nil
}
