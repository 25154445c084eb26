// Command triage scores and ranks tasks, serves the analysis over HTTP, and
// records feedback for weight tuning.
package main

import "github.com/triagekit/triage/cmd"

func main() {
	cmd.Execute()
}
