package restyutil

import (
	"fmt"
	"regexp"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
)

type InstrumentOutput interface {
	Write(id string, contents string)
}

type instrumentCtx struct {
	output    InstrumentOutput
	idcounter *uint64
	// prefix keeps dumps from separate runs into the same directory apart
	prefix string
}

// InstrumentClient dumps every exchange the client completes or fails to `output`.
// A nil output makes this a no-op.
func InstrumentClient(client *resty.Client, output InstrumentOutput) {
	if output == nil {
		return
	}

	var idcounter uint64
	i := instrumentCtx{
		output:    output,
		idcounter: &idcounter,
		prefix:    time.Now().UTC().Format("20060102T150405"),
	}
	client.OnAfterResponse(i.onAfterResponse)
	client.OnError(i.onError)
}

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9.-]+`)

func (i instrumentCtx) messageId(host string) string {
	id := strconv.FormatUint(atomic.AddUint64(i.idcounter, 1), 10)
	host = unsafeFileChars.ReplaceAllString(host, "_")
	return fmt.Sprintf("%s_%s_%s.txt", i.prefix, id, host)
}

func requestHost(req *resty.Request) string {
	if req.RawRequest != nil && req.RawRequest.URL != nil {
		return req.RawRequest.URL.Host
	}
	return "unknown"
}

func (i instrumentCtx) onAfterResponse(_ *resty.Client, res *resty.Response) error {
	i.output.Write(i.messageId(requestHost(res.Request)), formatHttpMessage(res))
	return nil
}

func (i instrumentCtx) onError(req *resty.Request, err error) {
	i.output.Write(i.messageId(requestHost(req)), formatHttpError(req, err))
}
