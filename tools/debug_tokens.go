// Command debug_tokens prints the token stream for a source file, one
// token per line, for inspecting the lexer in isolation.
package main

import (
	"fmt"
	"os"

	lx "cc89/internal/lexer"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("usage: debug_tokens <file>")
		os.Exit(2)
	}
	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, "read error:", err)
		os.Exit(1)
	}
	l := lx.New(string(data))
	for {
		t, err := l.Next()
		if err != nil {
			fmt.Fprintln(os.Stderr, "lex error:", err)
			os.Exit(1)
		}
		fmt.Printf("%-14s %-12q %d:%d\n", t.Type, t.Lex, t.Line, t.Col)
		if t.Type == lx.EOF {
			break
		}
	}
}
