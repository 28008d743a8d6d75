package assessment

import (
	"encoding/json"
	"fmt"
)

// AnswerKind discriminates the variants of AnswerValue.
type AnswerKind int

const (
	AnswerNull AnswerKind = iota
	AnswerString
	AnswerNumber
	AnswerBool
	AnswerStringList
	AnswerNumberList
	AnswerFile
)

// FileUpload describes an uploaded file referenced by a response.
type FileUpload struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType,omitempty"`
	SizeBytes   int64  `json:"sizeBytes,omitempty"`
	URL         string `json:"url,omitempty"`
}

// AnswerValue is a tagged union over the answer shapes a response can carry:
// string, number, boolean, string list, number list, file upload or null.
// Scoring switches on Kind exhaustively so that a new variant cannot slip
// through as a silent zero.
type AnswerValue struct {
	Kind    AnswerKind
	Str     string
	Num     float64
	Bool    bool
	StrList []string
	NumList []float64
	File    *FileUpload
}

func StringAnswer(s string) AnswerValue      { return AnswerValue{Kind: AnswerString, Str: s} }
func NumberAnswer(n float64) AnswerValue     { return AnswerValue{Kind: AnswerNumber, Num: n} }
func BoolAnswer(b bool) AnswerValue          { return AnswerValue{Kind: AnswerBool, Bool: b} }
func StringListAnswer(s []string) AnswerValue {
	return AnswerValue{Kind: AnswerStringList, StrList: s}
}
func NumberListAnswer(n []float64) AnswerValue {
	return AnswerValue{Kind: AnswerNumberList, NumList: n}
}
func FileAnswer(f FileUpload) AnswerValue { return AnswerValue{Kind: AnswerFile, File: &f} }
func NullAnswer() AnswerValue             { return AnswerValue{Kind: AnswerNull} }

// IsNull reports whether the answer carries no value.
func (v AnswerValue) IsNull() bool { return v.Kind == AnswerNull }

// MarshalJSON emits the natural JSON shape of the variant.
func (v AnswerValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case AnswerNull:
		return []byte("null"), nil
	case AnswerString:
		return json.Marshal(v.Str)
	case AnswerNumber:
		return json.Marshal(v.Num)
	case AnswerBool:
		return json.Marshal(v.Bool)
	case AnswerStringList:
		if v.StrList == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.StrList)
	case AnswerNumberList:
		if v.NumList == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.NumList)
	case AnswerFile:
		return json.Marshal(v.File)
	}
	return nil, fmt.Errorf("answer: unknown kind %d", v.Kind)
}

// UnmarshalJSON infers the variant from the JSON shape. Objects are treated
// as file-upload records; arrays must be homogeneous strings or numbers.
// Anything unrecognized decodes as null rather than failing, mirroring the
// permissive handling of malformed responses elsewhere in the engine.
func (v *AnswerValue) UnmarshalJSON(data []byte) error {
	trimmed := firstNonSpace(data)
	switch trimmed {
	case 0, 'n':
		*v = NullAnswer()
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = StringAnswer(s)
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = BoolAnswer(b)
		return nil
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		if len(raw) == 0 {
			*v = StringListAnswer([]string{})
			return nil
		}
		if firstNonSpace(raw[0]) == '"' {
			var list []string
			if err := json.Unmarshal(data, &list); err != nil {
				*v = NullAnswer()
				return nil
			}
			*v = StringListAnswer(list)
			return nil
		}
		var nums []float64
		if err := json.Unmarshal(data, &nums); err != nil {
			*v = NullAnswer()
			return nil
		}
		*v = NumberListAnswer(nums)
		return nil
	case '{':
		var f FileUpload
		if err := json.Unmarshal(data, &f); err != nil || f.FileName == "" {
			*v = NullAnswer()
			return nil
		}
		*v = FileAnswer(f)
		return nil
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			*v = NullAnswer()
			return nil
		}
		*v = NumberAnswer(n)
		return nil
	}
}

func firstNonSpace(data []byte) byte {
	for _, c := range data {
		switch c {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return c
	}
	return 0
}
