// Command maestro runs an objective through an orchestrator, a sub-agent,
// and a refiner, then prints and archives the transcript.
package main

func main() {
	Execute()
}
