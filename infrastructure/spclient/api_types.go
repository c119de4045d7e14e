package spclient

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ---------- OData envelope handling ----------

// collectionEnvelope covers both JSON flavors SharePoint returns for
// collection GETs: minimal/nometadata ({"value":[...],"odata.nextLink":...})
// and verbose ({"d":{"results":[...],"__next":...}}).
type collectionEnvelope struct {
	Value    []json.RawMessage `json:"value"`
	NextLink string            `json:"odata.nextLink"`
	D        struct {
		Results []json.RawMessage `json:"results"`
		Next    string            `json:"__next"`
	} `json:"d"`
}

// decodeCollectionPage extracts one page of raw entries plus the continuation
// reference (empty when the collection is exhausted).
func decodeCollectionPage(data []byte) ([]json.RawMessage, string, error) {
	var env collectionEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, "", fmt.Errorf("decode collection page: %w", err)
	}
	if env.D.Results != nil {
		return env.D.Results, env.D.Next, nil
	}
	return env.Value, env.NextLink, nil
}

// int64String decodes an Edm.Int64 value that SharePoint serializes as a
// JSON string in verbose mode and as a number in minimal mode.
type int64String int64

func (n *int64String) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*n = 0
			return nil
		}
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("parse int64 %q: %w", s, err)
		}
		*n = int64String(v)
		return nil
	}
	var v int64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*n = int64String(v)
	return nil
}

// ---------- Folder children listing ----------

type folderApiData struct {
	UniqueId          string `json:"UniqueId"`
	Name              string `json:"Name"`
	ServerRelativeUrl string `json:"ServerRelativeUrl"`
	ItemCount         int    `json:"ItemCount"`
}

type fileApiData struct {
	UniqueId          string      `json:"UniqueId"`
	Name              string      `json:"Name"`
	ServerRelativeUrl string      `json:"ServerRelativeUrl"`
	Length            int64String `json:"Length"`
}

// ---------- List item responses (gosip pagination) ----------

// ListItemApiResponse is the normalized shape of one paged list item.
type ListItemApiResponse struct {
	FileSystemObjectType int    `json:"FileSystemObjectType"`
	ID                   int    `json:"Id"`
	GUID                 string `json:"GUID"`
	Title                string `json:"Title"`
	FileLeafRef          string `json:"FileLeafRef"`
	File                 *struct {
		ServerRelativeUrl string `json:"ServerRelativeUrl"`
	} `json:"File"`
	Folder *struct {
		ServerRelativeUrl string `json:"ServerRelativeUrl"`
	} `json:"Folder"`
}
