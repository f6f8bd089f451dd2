package restyutil

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

type Output interface {
	Write(id string, contents string)
}

// DumpResponses writes every completed request/response pair to output,
// numbered in the order the responses arrive. A nil output is a no-op.
func DumpResponses(client *resty.Client, output Output) {
	if output == nil {
		return
	}

	var counter uint64
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		id := fmt.Sprintf("%04d%s.txt", atomic.AddUint64(&counter, 1), dumpSuffix(res.Request.URL))
		output.Write(id, formatHttpMessage(res))
		slog.DebugContext(
			res.Request.Context(), "dumped response",
			"method", res.Request.Method,
			"url", res.Request.URL,
			"status", res.StatusCode(),
			"file", id,
		)
		return nil
	})
}

// dumpSuffix turns the request path into a file name fragment,
// "/stats/story_eyes.php" becomes "_stats_story_eyes.php".
func dumpSuffix(rawUrl string) string {
	path := rawUrl
	if u, err := url.Parse(rawUrl); err == nil {
		path = u.Path
	}
	path = strings.TrimRight(path, "/")
	if path == "" {
		return ""
	}
	return strings.ReplaceAll(path, "/", "_")
}
