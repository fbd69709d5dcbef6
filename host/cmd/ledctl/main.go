package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cyclotron/host/link"
	"cyclotron/host/serial"
)

var (
	port    = flag.String("port", "/dev/ttyACM0", "Serial device path")
	baud    = flag.Int("baud", serial.DefaultBaud, "Baud rate (ignored for USB CDC)")
	verbose = flag.Bool("v", false, "Enable verbose output")
	execute = flag.String("e", "", "Commands to run, separated by ';', then exit")
)

func main() {
	flag.Parse()

	cfg := serial.DefaultConfig(*port)
	cfg.Baud = *baud
	l, err := link.Open(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer l.Close()
	if *verbose {
		l.Log = os.Stderr
	}

	if err := l.Identify(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: identify: %v\n", err)
		os.Exit(1)
	}
	dict := l.Dictionary()
	l.OnResponse(func(r *link.Response) {
		if r.Name == "command_error" && !*verbose {
			return
		}
		fmt.Printf("< %s\n", formatResponse(r, dict))
	})

	if *execute != "" {
		failed := false
		for _, line := range splitCommands(*execute) {
			if err := run(l, line, os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				failed = true
			}
		}
		// let trailing responses print
		time.Sleep(100 * time.Millisecond)
		if failed {
			os.Exit(1)
		}
		return
	}

	fmt.Printf("Connected to %s (%s)\n", *port, dict.Version)
	fmt.Println("Enter commands (type 'help' for available commands, 'quit' to exit):")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "quit", "exit", "q":
			return
		}
		if err := run(l, line, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}
}

func run(l *link.Link, line string, w io.Writer) error {
	dict := l.Dictionary()
	switch line {
	case "help", "?":
		printHelp(w, dict)
		return nil
	case "dict":
		dict.Print(w)
		return nil
	}

	name, args, err := parseLine(line, dict)
	if errors.Is(err, errEmptyLine) {
		return nil
	}
	if err != nil {
		return err
	}
	return l.Send(name, args)
}

func printHelp(w io.Writer, dict *link.Dictionary) {
	fmt.Fprintln(w, "\nBuilt in:")
	fmt.Fprintln(w, "  help           - Show this help message")
	fmt.Fprintln(w, "  dict           - Print dictionary summary")
	fmt.Fprintln(w, "  quit/exit/q    - Exit the program")
	fmt.Fprintln(w, "\nBoard commands (name key=value ...; color=#rrggbb sets red, green and blue):")
	for _, name := range dict.CommandNames() {
		msg, _ := dict.Command(name)
		fmt.Fprintf(w, "  %s\n", msg.Signature())
	}
	fmt.Fprintln(w)
}
