package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

func main() {
	portFlag := flag.String("port", "", "SPI port name (default: first available)")
	listFlag := flag.Bool("list", false, "List the available SPI ports")
	flag.Parse()

	if _, err := host.Init(); err != nil {
		log.Fatalln("host init failed: ", err)
	}

	if *listFlag {
		for _, ref := range spireg.All() {
			fmt.Printf("%s (#%d) %s\n", ref.Name, ref.Number, strings.Join(ref.Aliases, ", "))
		}
		return
	}

	p, err := spireg.Open(*portFlag)
	if err != nil {
		log.Fatalln("open failed: ", err)
	}
	fmt.Println("connected using", p)
	if err = p.Close(); err != nil {
		log.Fatalln("close failed: ", err)
	}
}
