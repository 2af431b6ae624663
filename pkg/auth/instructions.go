package auth

import (
	"fmt"
	"io"
	"strings"
)

// ShowCookieExtractionGuide explains how to copy a browser session for nhdl.
func ShowCookieExtractionGuide(w io.Writer, siteRoot string) {
	rule := strings.Repeat("=", 72)

	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "SESSION COOKIE GUIDE")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "When %s answers with a browser check (HTTP 403 or 503), nhdl needs\n", siteRoot)
	fmt.Fprintln(w, "the cookies and the user agent of a browser that already passed it.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "STEP 1: Open the site in your browser")
	fmt.Fprintf(w, "   - Go to %s and wait until the front page loads\n", siteRoot)
	fmt.Fprintln(w, "   - Log in if you want favorites-only galleries to resolve")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "STEP 2: Open Developer Tools (F12, or Cmd+Option+I on Mac)")
	fmt.Fprintln(w, "   - Select the 'Network' tab and refresh the page")
	fmt.Fprintln(w, "   - Click the first request to the site")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "STEP 3: Copy the request headers")
	fmt.Fprintln(w, "   - 'Cookie:' copy the whole value, it looks like")
	fmt.Fprintln(w, "       cf_clearance=AbC...; csrftoken=XyZ...; sessionid=123...")
	fmt.Fprintln(w, "   - 'User-Agent:' copy it verbatim; cf_clearance only works with it")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "TIPS:")
	fmt.Fprintln(w, "   - cf_clearance expires after a while; run 'nhdl auth login' again")
	fmt.Fprintln(w, "   - The cookie grants access to your account, do not share it")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
}

// ShowQuickExtractGuide is the one-line version of the guide.
func ShowQuickExtractGuide(w io.Writer) {
	fmt.Fprintln(w, "Cookie: F12 -> Network -> refresh -> first request -> Headers -> Cookie and User-Agent")
	fmt.Fprintln(w, "Type 'help' for detailed instructions")
}
