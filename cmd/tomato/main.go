// Command tomato is a Pomodoro timer for the terminal.
package main

import "github.com/oshokin/tomato/cmd/tomato/cmd"

func main() {
	cmd.Execute()
}
