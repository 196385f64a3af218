// Command tvmcell inspects and assembles cells from the command line.
package main

func main() {
	Execute()
}
