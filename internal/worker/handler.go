package worker

import (
	"fmt"

	"github.com/yildizm/logdesk/internal/lines"
)

// Handler computes the response for one request. It runs on the worker goroutine.
type Handler func(req Request) Response

// Dispatch is the default Handler, routing each kind to the line processor
func Dispatch(req Request) Response {
	resp := Response{ID: req.ID, Kind: req.Kind}

	switch req.Kind {
	case KindLoadLogs:
		content := lines.TailTruncate(req.Payload.Content, req.Payload.Tail)
		parsed := lines.ParseLines(content)
		resp.Data = &ResponseData{Content: content, Lines: parsed, TotalLines: len(parsed)}
	case KindParseLogs:
		parsed := lines.ParseLines(req.Payload.Content)
		resp.Data = &ResponseData{Lines: parsed, TotalLines: len(parsed)}
	case KindFilterLogs:
		res := lines.FilterBySubstring(req.Payload.Content, req.Payload.Filter)
		resp.Data = &ResponseData{
			Content:       res.Content,
			Lines:         res.Lines,
			TotalLines:    len(lines.ParseLines(req.Payload.Content)),
			FilteredCount: res.FilteredCount,
		}
	default:
		resp.Error = fmt.Sprintf("unknown request kind: %s", req.Kind)
		return resp
	}

	resp.Success = true
	return resp
}
