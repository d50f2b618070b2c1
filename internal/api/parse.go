package api

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"invoice-intake/internal/common/errors"
	"invoice-intake/internal/submission"
)

// Limits bound what a single request may carry.
type Limits struct {
	MaxBodyBytes int64
	MaxFileBytes int64
}

// maxValueBytes caps a single non-file multipart field.
const maxValueBytes = 10 << 20

// dataField carries the whole form as a JSON object alongside the file parts.
const dataField = "data"

// parseRequest turns a JSON, multipart or urlencoded body into raw fields and attachments.
func parseRequest(w http.ResponseWriter, r *http.Request, limits Limits) (submission.Raw, error) {
	if limits.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limits.MaxBodyBytes)
	}

	ct := r.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil && ct != "" {
		return submission.Raw{}, errors.NewUnsupportedRequestError(fmt.Sprintf("content type %q", ct))
	}

	switch mediaType {
	case "application/json", "":
		return parseJSON(r, limits)
	case "multipart/form-data":
		return parseMultipart(r, limits)
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return submission.Raw{}, bodyError(err, limits)
		}
		return submission.Raw{Fields: formFields(r.PostForm)}, nil
	}
	return submission.Raw{}, errors.NewUnsupportedRequestError(fmt.Sprintf("content type %q", mediaType))
}

func parseJSON(r *http.Request, limits Limits) (submission.Raw, error) {
	fields := map[string]interface{}{}
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		if stderrors.Is(err, io.EOF) {
			return submission.Raw{Fields: fields}, nil
		}
		return submission.Raw{}, bodyError(err, limits)
	}
	return submission.Raw{Fields: fields}, nil
}

// parseMultipart reads parts in stream order, so attachments keep the order they were sent in.
func parseMultipart(r *http.Request, limits Limits) (submission.Raw, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return submission.Raw{}, errors.NewInvalidBodyError(err)
	}

	values := url.Values{}
	var attachments []submission.Attachment
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return submission.Raw{}, bodyError(err, limits)
		}

		name := part.FormName()
		if name == "" {
			part.Close()
			continue
		}
		if part.FileName() == "" {
			v, err := readLimited(part, maxValueBytes)
			part.Close()
			if err != nil {
				return submission.Raw{}, bodyError(err, limits)
			}
			if v == nil {
				return submission.Raw{}, errors.NewPayloadTooLargeError(maxValueBytes)
			}
			values.Add(name, string(v))
			continue
		}

		a, err := readAttachment(part, limits)
		part.Close()
		if err != nil {
			return submission.Raw{}, err
		}
		attachments = append(attachments, a)
	}

	fields, err := mergeDataField(formFields(values), values)
	if err != nil {
		return submission.Raw{}, err
	}
	return submission.Raw{Fields: fields, Attachments: attachments}, nil
}

// mergeDataField unpacks a JSON-encoded "data" field into the form fields.
func mergeDataField(fields map[string]interface{}, values url.Values) (map[string]interface{}, error) {
	encoded, ok := values[dataField]
	if !ok || len(encoded) == 0 {
		return fields, nil
	}

	decoded := map[string]interface{}{}
	dec := json.NewDecoder(strings.NewReader(encoded[0]))
	dec.UseNumber()
	if err := dec.Decode(&decoded); err != nil {
		return nil, errors.NewInvalidBodyError(fmt.Errorf("%s field: %w", dataField, err))
	}

	delete(fields, dataField)
	for k, v := range decoded {
		fields[k] = v
	}
	return fields, nil
}

// readLimited returns nil data when the part is larger than limit. A limit of
// zero or less reads the whole part.
func readLimited(part *multipart.Part, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(part)
	}
	data, err := io.ReadAll(io.LimitReader(part, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, nil
	}
	return data, nil
}

func readAttachment(part *multipart.Part, limits Limits) (submission.Attachment, error) {
	data, err := readLimited(part, limits.MaxFileBytes)
	if err != nil {
		return submission.Attachment{}, bodyError(err, limits)
	}
	if data == nil {
		return submission.Attachment{}, errors.NewPayloadTooLargeError(limits.MaxFileBytes)
	}

	ct := part.Header.Get("Content-Type")
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(data)
	}
	return submission.Attachment{
		FieldName:   part.FormName(),
		Filename:    part.FileName(),
		ContentType: ct,
		Data:        data,
	}, nil
}

// formFields keeps single values as strings and repeated keys as lists.
func formFields(values url.Values) map[string]interface{} {
	out := make(map[string]interface{}, len(values))
	for k, vs := range values {
		switch len(vs) {
		case 0:
		case 1:
			out[k] = vs[0]
		default:
			list := make([]interface{}, len(vs))
			for i, v := range vs {
				list[i] = v
			}
			out[k] = list
		}
	}
	return out
}

func bodyError(err error, limits Limits) error {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return errors.NewPayloadTooLargeError(limits.MaxBodyBytes)
	}
	return errors.NewInvalidBodyError(err)
}
