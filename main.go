package main

import "ArtistStudio/cmd"

func main() {
	cmd.Execute()
}
