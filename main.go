package main

import "moment-backend/cmd"

func main() {
	cmd.Run()
}
