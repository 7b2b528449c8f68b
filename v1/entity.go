package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"reflect"
	"strings"

	"github.com/bww/go-util/v1/text"
	"github.com/dustin/go-humanize"
)

// A raw entity, retained for diagnostics
type Entity struct {
	ContentType string
	Data        []byte
}

func (e Entity) String() string {
	var d string
	if isMimetypeBinary(e.ContentType) {
		b := &strings.Builder{}
		text.Hexdump(b, e.Data, 20)
		d = b.String()
	} else {
		d = string(e.Data)
	}
	return fmt.Sprintf("---\n%s (%s)\n---\n%s\n#", e.ContentType, humanize.Bytes(uint64(len(e.Data))), d)
}

func entityReader(entity interface{}) (io.Reader, error) {
	switch v := entity.(type) {
	case nil:
		return nil, nil
	case []byte:
		return bytes.NewReader(v), nil
	case io.Reader:
		return v, nil
	default:
		return Marshal(entity)
	}
}

// Marshal encodes a request entity as JSON
func Marshal(entity interface{}) (io.Reader, error) {
	if entity == nil {
		return nil, nil
	}
	d, err := json.Marshal(entity)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(d), nil
}

// Unmarshal decodes a JSON response entity. A response that does not declare
// a content type is treated as JSON, which is what the service produces.
func Unmarshal(rsp *http.Response, entity interface{}) error {
	if rsp.Body != nil {
		defer rsp.Body.Close()
	}
	if rsp.StatusCode == http.StatusNoContent { // no content; just set the entity to nil
		val := reflect.ValueOf(entity)
		switch val.Kind() {
		case reflect.Interface, reflect.Pointer:
			p := val.Elem()
			p.Set(reflect.Zero(p.Type()))
		}
		return nil
	}

	if v := rsp.Header.Get("Content-Type"); v != "" {
		m, _, err := mime.ParseMediaType(v)
		if err != nil {
			return err
		}
		if !isMimetypeJSON(m) {
			return fmt.Errorf("%w: %s", ErrUnsupportedMimetype, m)
		}
	}

	return json.NewDecoder(rsp.Body).Decode(entity)
}

func isMimetypeJSON(m string) bool {
	m = strings.ToLower(m)
	return m == JSON || strings.HasSuffix(m, "+json")
}

func isMimetypeBinary(t string) bool {
	m, p, err := mime.ParseMediaType(t)
	if err != nil {
		return true
	}
	if isMimetypeJSON(m) {
		return false
	} else if strings.HasPrefix(m, "text/") {
		return false
	} else if _, ok := p["charset"]; ok {
		return false
	} else {
		return true
	}
}
