// Command waitlist-server is the waitlist admin backend: it serves the staff
// API, runs the retention cleanup and relays match-alert cron triggers.
//
// Usage:
//
//	waitlist-server serve --config waitlist.yaml
//	waitlist-server cleanup
//	waitlist-server migrate
package main

func main() {
	Execute()
}
