package gridengine

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/gridhaven/kraken/pkg/adaptor"
)

// Structured parser for the machine-readable qstat output (-xml).
//
// The parser walks the token stream and collects, for every entity element
// (a cluster_queue or job_list), the text of its direct children as an
// attribute map keyed by element name. Attributes the parser does not know
// about are carried through untouched, which keeps it forward-compatible
// with backend version drift. A structurally malformed document is a hard
// parse failure.

// Element names in qstat -xml output.
const (
	queueEntityTag = "cluster_queue"
	queueIDTag     = "name"
	jobEntityTag   = "job_list"
	jobIDTag       = "JB_job_number"
)

// parseQueueInfo parses `qstat -xml -g c` output into queueName → attributes.
func parseQueueInfo(data []byte) (map[string]map[string]string, error) {
	return parseEntities(data, queueEntityTag, queueIDTag)
}

// parseJobInfo parses `qstat -xml` output into jobID → attributes.
func parseJobInfo(data []byte) (map[string]map[string]string, error) {
	return parseEntities(data, jobEntityTag, jobIDTag)
}

func parseEntities(data []byte, entityTag, idTag string) (map[string]map[string]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	result := make(map[string]map[string]string)

	// An empty result set still carries a root element. A document without
	// one is truncated or missing backend output, not zero entities.
	sawRoot := false

	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				if !sawRoot {
					return nil, adaptor.NewError(adaptor.ErrParse, AdaptorName, "parseEntities",
						"empty status document", nil)
				}
				return result, nil
			}
			return nil, adaptor.NewError(adaptor.ErrParse, AdaptorName, "parseEntities",
				"malformed status document", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		sawRoot = true
		if start.Name.Local != entityTag {
			continue
		}

		attrs, err := parseEntity(dec, start)
		if err != nil {
			return nil, err
		}

		id, ok := attrs[idTag]
		if !ok || id == "" {
			return nil, adaptor.NewError(adaptor.ErrParse, AdaptorName, "parseEntities",
				fmt.Sprintf("entity %q without identifier element %q", entityTag, idTag), nil)
		}
		result[id] = attrs
	}
}

// parseEntity reads one entity element to its end, mapping each direct child
// element to its text content.
func parseEntity(dec *xml.Decoder, start xml.StartElement) (map[string]string, error) {
	attrs := make(map[string]string)

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, adaptor.NewError(adaptor.ErrParse, AdaptorName, "parseEntity",
				fmt.Sprintf("unterminated element %q", start.Name.Local), err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			text, err := collectText(dec, t)
			if err != nil {
				return nil, err
			}
			attrs[t.Name.Local] = text
		case xml.EndElement:
			if t.Name.Local == start.Name.Local {
				return attrs, nil
			}
		}
	}
}

// collectText accumulates the character data under elt, descending through
// any nested elements, until elt is closed.
func collectText(dec *xml.Decoder, elt xml.StartElement) (string, error) {
	var b strings.Builder
	depth := 1

	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return "", adaptor.NewError(adaptor.ErrParse, AdaptorName, "collectText",
				fmt.Sprintf("unterminated element %q", elt.Name.Local), err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			b.Write(t)
		}
	}

	return strings.TrimSpace(b.String()), nil
}
