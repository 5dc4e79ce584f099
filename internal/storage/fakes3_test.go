package storage

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeS3 is a path-style S3 endpoint serving one bucket from memory. It
// implements just enough of HEAD/GET/PUT/DELETE object, HEAD bucket and
// ListObjectsV2 for the backends to run against it.
type fakeS3 struct {
	bucket string

	mu       sync.Mutex
	objects  map[string]fakeObject
	requests []*http.Request
}

type fakeObject struct {
	data        []byte
	contentType string
}

var fakeModTime = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func newFakeS3(t *testing.T, bucket string) (*fakeS3, *httptest.Server) {
	t.Helper()
	f := &fakeS3{bucket: bucket, objects: make(map[string]fakeObject)}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeS3) put(key, contentType, data string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = fakeObject{data: []byte(data), contentType: contentType}
}

// lastRequest returns the most recent request matching method.
func (f *fakeS3) lastRequest(method string) *http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.requests) - 1; i >= 0; i-- {
		if f.requests[i].Method == method {
			return f.requests[i]
		}
	}
	return nil
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.requests = append(f.requests, r.Clone(r.Context()))
	f.mu.Unlock()

	rest, ok := strings.CutPrefix(r.URL.Path, "/"+f.bucket)
	if !ok {
		writeS3Error(w, http.StatusNotFound, "NoSuchBucket", r.Method)
		return
	}
	key := strings.TrimPrefix(rest, "/")

	if key == "" {
		switch {
		case r.Method == http.MethodHead:
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodGet && r.URL.Query().Get("list-type") == "2":
			f.list(w, r.URL.Query())
		default:
			writeS3Error(w, http.StatusNotImplemented, "NotImplemented", r.Method)
		}
		return
	}

	f.mu.Lock()
	obj, exists := f.objects[key]
	f.mu.Unlock()

	switch r.Method {
	case http.MethodHead, http.MethodGet:
		if !exists {
			writeS3Error(w, http.StatusNotFound, "NoSuchKey", r.Method)
			return
		}
		w.Header().Set("Content-Type", obj.contentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(obj.data)))
		w.Header().Set("ETag", `"etag-`+key+`"`)
		w.Header().Set("Last-Modified", fakeModTime.Format(http.TimeFormat))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			_, _ = w.Write(obj.data)
		}
	case http.MethodPut:
		f.put(key, r.Header.Get("Content-Type"), string(body))
		w.Header().Set("ETag", `"etag-`+key+`"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodDelete:
		f.mu.Lock()
		delete(f.objects, key)
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	default:
		writeS3Error(w, http.StatusNotImplemented, "NotImplemented", r.Method)
	}
}

type listContents struct {
	Key          string `xml:"Key"`
	LastModified string `xml:"LastModified"`
	ETag         string `xml:"ETag"`
	Size         int64  `xml:"Size"`
	StorageClass string `xml:"StorageClass"`
}

type listResult struct {
	XMLName               xml.Name       `xml:"http://s3.amazonaws.com/doc/2006-03-01/ ListBucketResult"`
	Name                  string         `xml:"Name"`
	Prefix                string         `xml:"Prefix"`
	KeyCount              int            `xml:"KeyCount"`
	MaxKeys               int            `xml:"MaxKeys"`
	IsTruncated           bool           `xml:"IsTruncated"`
	ContinuationToken     string         `xml:"ContinuationToken,omitempty"`
	NextContinuationToken string         `xml:"NextContinuationToken,omitempty"`
	StartAfter            string         `xml:"StartAfter,omitempty"`
	Contents              []listContents `xml:"Contents"`
}

// list pages through keys in lexical order; the continuation token is the
// last key of the previous page.
func (f *fakeS3) list(w http.ResponseWriter, q url.Values) {
	maxKeys := 1000
	if v := q.Get("max-keys"); v != "" {
		maxKeys, _ = strconv.Atoi(v)
	}
	prefix := q.Get("prefix")
	after := q.Get("start-after")
	if tok := q.Get("continuation-token"); tok != "" {
		after = tok
	}

	f.mu.Lock()
	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) && k > after {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	res := listResult{
		Name:              f.bucket,
		Prefix:            prefix,
		MaxKeys:           maxKeys,
		ContinuationToken: q.Get("continuation-token"),
		StartAfter:        q.Get("start-after"),
	}
	for _, k := range keys {
		if len(res.Contents) == maxKeys {
			res.IsTruncated = true
			res.NextContinuationToken = res.Contents[len(res.Contents)-1].Key
			break
		}
		res.Contents = append(res.Contents, listContents{
			Key:          k,
			LastModified: fakeModTime.Format("2006-01-02T15:04:05.000Z"),
			ETag:         `"etag-` + k + `"`,
			Size:         int64(len(f.objects[k].data)),
			StorageClass: "STANDARD",
		})
	}
	f.mu.Unlock()
	res.KeyCount = len(res.Contents)

	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, xml.Header)
	_ = xml.NewEncoder(w).Encode(res)
}

func writeS3Error(w http.ResponseWriter, status int, code, method string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	if method == http.MethodHead {
		return
	}
	_, _ = fmt.Fprintf(w, `%s<Error><Code>%s</Code><Message>%s</Message><RequestId>fake</RequestId></Error>`,
		xml.Header, code, http.StatusText(status))
}

func fakeS3Config(srv *httptest.Server, backend Backend) *S3Config {
	return &S3Config{
		Type:      StorageTypeS3Compatible,
		Backend:   backend,
		Endpoint:  srv.URL,
		AccessKey: "test-key",
		SecretKey: "test-secret",
		UseSSL:    false,
		Bucket:    "bucket",
	}
}
