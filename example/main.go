// Command example is a small tracee for trying insntrace:
//
//	go build -o /tmp/example ./example
//	insntrace -o - trace -n 200000 -- /tmp/example 10
package main

import (
	"fmt"
	"os"
	"strconv"
)

func main() {
	n := 20
	if len(os.Args) > 1 {
		if v, err := strconv.Atoi(os.Args[1]); err == nil {
			n = v
		}
	}
	fmt.Println(fib(n))
}

//go:noinline
func fib(n int) int {
	if n < 2 {
		return n
	}
	return fib(n-1) + fib(n-2)
}
