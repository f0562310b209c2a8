package main

import (
	"fmt"

	"github.com/zan8in/ipkit/api"
)

func main() {

	ips, err := api.IPRange([]string{"192.168.1.0/30", "10.0.0.1-10.0.0.3"}, nil)
	if err != nil {
		fmt.Println(err.Error())
		return
	}
	for _, ip := range ips {
		fmt.Println(ip)
	}

	fmt.Println(api.RandomIP())

	rst, err := api.Target("hackerone.com", "")
	if err != nil {
		fmt.Println(err.Error())
		return
	}

	for _, r := range rst {
		fmt.Println(r)
	}

}
