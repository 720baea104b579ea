package helper

import (
	"bytes"
	"encoding/json"
	"mime"
	"strings"

	"github.com/ditashi/jsbeautifier-go/jsbeautifier"
	"github.com/yosssi/gohtml"
)

func PrettyHTML(input []byte) (string, error) {
	return gohtml.Format(string(input)), nil
}

func PrettyJS(input []byte) (string, error) {
	opts := jsbeautifier.DefaultOptions()
	inputStr := string(input)
	return jsbeautifier.Beautify(&inputStr, opts)
}

func PrettyJson(input []byte) (string, error) {
	var prettyJSON bytes.Buffer
	if err := json.Indent(&prettyJSON, input, "", "  "); err != nil {
		return "", err
	}
	return prettyJSON.String(), nil
}

// PrettyContent reformats body according to its media type. Unknown types,
// and bodies the formatter rejects, are returned unchanged.
func PrettyContent(contentType string, body []byte) []byte {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}

	var format func([]byte) (string, error)
	switch {
	case mediaType == "text/html", mediaType == "application/xhtml+xml", mediaType == "":
		format = PrettyHTML
	case strings.HasSuffix(mediaType, "javascript"):
		format = PrettyJS
	case mediaType == "application/json", strings.HasSuffix(mediaType, "+json"):
		format = PrettyJson
	default:
		return body
	}

	out, err := format(body)
	if err != nil {
		VerboseLog("[-] Keeping original formatting:", err)
		return body
	}
	return []byte(out)
}
