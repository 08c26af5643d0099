package main

import (
	"os"

	"github.com/bismut-lang/bismut/driver"
)

func main() {
	driver.Version = Version
	driver.Commit = Commit
	driver.BuildDate = BuildDate
	os.Exit(driver.Run(os.Args))
}
