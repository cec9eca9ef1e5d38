package main

import "github.com/ValentinKolb/dSer/cmd"

func main() {
	cmd.Execute()
}
