// Command wkreport posts a WaniKani public profile summary to a chat webhook.
//
// It is a one-shot job meant to be triggered by cron or a CI schedule:
//
//	wkreport --username koichi --webhook-url https://chat.example.com/hooks/xyz
//
// The run is all or nothing. A fetch, parse, or delivery failure exits with
// status 1 and nothing is posted.
package main

import "github.com/JakeFAU/wanikani-report/cmd"

func main() {
	cmd.Execute()
}
