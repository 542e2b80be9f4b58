// File: internal/cookies/netscape.go
package cookies

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xkilldash9x/fpcrawl/api/schemas"
)

// netscapeHeader is the magic first line curl and wget expect in a
// cookie jar file.
const netscapeHeader = "# Netscape HTTP Cookie File"

// ToNetscape serializes records in the Netscape cookie-jar text format:
// tab-separated domain, host-only flag, path, secure flag, expiry (0
// for session cookies), name, value. The host-only flag is derived from
// whether the domain starts with a dot.
func ToNetscape(records []schemas.CookieRecord) string {
	var b strings.Builder
	b.WriteString(netscapeHeader + "\n")
	b.WriteString("# Generated by fpcrawl\n\n")

	for _, rec := range records {
		if rec.Name == "" {
			continue
		}
		includeSubdomains := "FALSE"
		if strings.HasPrefix(rec.Domain, ".") {
			includeSubdomains = "TRUE"
		}
		secure := "FALSE"
		if rec.Secure {
			secure = "TRUE"
		}
		var expiry int64
		if rec.Expires != nil {
			expiry = rec.Expires.Unix()
		}
		fmt.Fprintf(&b, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			rec.Domain, includeSubdomains, rec.Path, secure, expiry, rec.Name, rec.Value)
	}
	return b.String()
}

// ParseNetscape reads a Netscape cookie-jar back into records.
// Malformed lines are skipped rather than failing the whole jar, since
// jars are frequently hand-edited.
func ParseNetscape(data string) []schemas.CookieRecord {
	var records []schemas.CookieRecord

	scanner := bufio.NewScanner(strings.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 7 {
			continue
		}

		rec := schemas.CookieRecord{
			Domain: fields[0],
			Path:   fields[2],
			Secure: fields[3] == "TRUE",
			Name:   fields[5],
			Value:  fields[6],
		}
		if expiry, err := strconv.ParseInt(fields[4], 10, 64); err == nil && expiry > 0 {
			t := time.Unix(expiry, 0).UTC()
			rec.Expires = &t
		}
		records = append(records, rec)
	}
	return records
}
