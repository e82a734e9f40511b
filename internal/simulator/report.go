package simulator

import (
	"fmt"
	"io"
)

// Report writes the human readable outcome of Send to w.
func Report(w io.Writer, url string, res Result, err error) {
	if err != nil {
		if IsConnectError(err) {
			fmt.Fprintf(w, "❌ Could not connect to the bot. Make sure it's running at %s\n", url)
			return
		}
		fmt.Fprintf(w, "❌ Error: %v\n", err)
		return
	}

	fmt.Fprintf(w, "Status Code: %d\n", res.StatusCode)
	fmt.Fprintf(w, "Response: %s\n", res.Body)
	if res.OK() {
		fmt.Fprintln(w, "✅ Webhook sent successfully!")
	} else {
		fmt.Fprintln(w, "❌ Webhook failed!")
	}
}
