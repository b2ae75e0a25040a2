package testing

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"

	"github.com/labstack/echo/v4"
	"github.com/onsi/gomega"
)

type RequestModifier func(r *http.Request)

type RequestModifiers []RequestModifier

func (r *RequestModifiers) Add(mods ...RequestModifier) {
	*r = append(*r, mods...)
}

type RequestFactory struct {
	Method  string
	Target  string
	JSONObj interface{}
	Mods    RequestModifiers
}

func (r RequestFactory) MakeFake() *http.Request {
	var body io.Reader

	if r.JSONObj != nil {
		buf := &bytes.Buffer{}
		err := json.NewEncoder(buf).Encode(r.JSONObj)
		gomega.ExpectWithOffset(1, err).NotTo(gomega.HaveOccurred())

		body = buf
	}

	request := httptest.NewRequest(r.Method, r.Target, body)

	isJSONBody := body != nil
	if isJSONBody {
		request.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}

	for _, mod := range r.Mods {
		mod(request)
	}

	return request
}

// UploadRequestFactory builds the multipart form that the process
// endpoint consumes: a file part plus an optional format field.
type UploadRequestFactory struct {
	Target       string
	Filename     string
	FileContents []byte
	Format       string
	Mods         RequestModifiers
}

func (u UploadRequestFactory) MakeFake() *http.Request {
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)

	filePart, err := writer.CreateFormFile("file", u.Filename)
	gomega.ExpectWithOffset(1, err).NotTo(gomega.HaveOccurred())

	_, err = filePart.Write(u.FileContents)
	gomega.ExpectWithOffset(1, err).NotTo(gomega.HaveOccurred())

	if u.Format != "" {
		err = writer.WriteField("format", u.Format)
		gomega.ExpectWithOffset(1, err).NotTo(gomega.HaveOccurred())
	}

	err = writer.Close()
	gomega.ExpectWithOffset(1, err).NotTo(gomega.HaveOccurred())

	request := httptest.NewRequest("POST", u.Target, buf)
	request.Header.Set(echo.HeaderContentType, writer.FormDataContentType())

	for _, mod := range u.Mods {
		mod(request)
	}

	return request
}
