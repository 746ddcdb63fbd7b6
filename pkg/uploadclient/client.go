package uploadclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sir_venger/upload_lite/pkg/uploadproto"
)

type PutChunkRequest struct {
	Hash     string
	Index    int
	FileName string
	Reader   io.Reader
}

type Client interface {
	// ListChunks Получить индексы уже принятых частей
	ListChunks(ctx context.Context, hash string) ([]int, error)
	// PutChunk Загрузить одну часть
	PutChunk(ctx context.Context, req PutChunkRequest) error
	// Merge Попросить сервер собрать файл
	Merge(ctx context.Context, hash, fileName string) (uploadproto.MergeResponse, error)
}

// HTTPClient ходит в HTTP API сервиса загрузок.
type HTTPClient struct {
	base string
	c    *http.Client
}

// New создаёт HTTP-клиент для сервера baseURL.
func New(baseURL string) *HTTPClient {
	return &HTTPClient{
		base: strings.TrimRight(baseURL, "/"),
		c:    &http.Client{},
	}
}

var _ Client = (*HTTPClient)(nil)

// ListChunks возвращает индексы частей, которые сервер уже сохранил.
func (h *HTTPClient) ListChunks(ctx context.Context, hash string) ([]int, error) {
	u := h.base + uploadproto.PathUploadedChunks + "?" + url.Values{uploadproto.QueryHash: {hash}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := h.c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, responseError("list chunks", resp)
	}

	var out []int
	if err = json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// PutChunk отправляет часть multipart-формой, не буферизуя её в памяти.
func (h *HTTPClient) PutChunk(ctx context.Context, req PutChunkRequest) error {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeChunkForm(mw, req))
	}()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.base+uploadproto.PathUpload, pr)
	if err != nil {
		_ = pr.CloseWithError(err)
		return err
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := h.c.Do(httpReq)
	if err != nil {
		_ = pr.CloseWithError(err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return responseError(fmt.Sprintf("upload chunk %d", req.Index), resp)
	}
	return nil
}

func writeChunkForm(mw *multipart.Writer, req PutChunkRequest) error {
	fields := [][2]string{
		{uploadproto.FieldHash, req.Hash},
		{uploadproto.FieldChunkIndex, strconv.Itoa(req.Index)},
		{uploadproto.FieldFileName, req.FileName},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return err
		}
	}

	part, err := mw.CreateFormFile(uploadproto.FieldFile, "blob")
	if err != nil {
		return err
	}
	if req.Reader != nil {
		if _, err = io.Copy(part, req.Reader); err != nil {
			return err
		}
	}
	return mw.Close()
}

// Merge просит сервер склеить части сессии hash в файл fileName.
func (h *HTTPClient) Merge(ctx context.Context, hash, fileName string) (uploadproto.MergeResponse, error) {
	body, err := json.Marshal(uploadproto.MergeRequest{FileName: fileName, Hash: hash})
	if err != nil {
		return uploadproto.MergeResponse{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.base+uploadproto.PathMerge, bytes.NewReader(body))
	if err != nil {
		return uploadproto.MergeResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.c.Do(req)
	if err != nil {
		return uploadproto.MergeResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return uploadproto.MergeResponse{}, responseError("merge", resp)
	}

	var out uploadproto.MergeResponse
	if err = json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return uploadproto.MergeResponse{}, err
	}
	return out, nil
}

// StatusError — сервер ответил неуспешным статусом.
type StatusError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s failed: %d %s", e.Op, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("%s failed: %d %s", e.Op, e.StatusCode, e.Message)
}

func responseError(op string, resp *http.Response) error {
	var er uploadproto.ErrorResponse
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	msg := strings.TrimSpace(string(b))
	if json.Unmarshal(b, &er) == nil && er.Error != "" {
		msg = er.Error
	}
	return &StatusError{Op: op, StatusCode: resp.StatusCode, Message: msg}
}
