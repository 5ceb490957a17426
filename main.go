package main

import (
	"fmt"

	"github.com/orderpulse/notify-service/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		fmt.Println(err.Error())
		return
	}
}
