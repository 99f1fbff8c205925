package main

import "github.com/ValentinKolb/rwKV/cmd"

func main() {
	cmd.Execute()
}
