package main

import (
	"github.com/JhihJian/SUMM-Daemon/cli"
)

func main() {
	cli.Execute()
}
