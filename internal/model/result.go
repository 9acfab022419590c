package model

// WriteResult mirrors the write acknowledgement shape clients of this API
// already parse: {"n":1,"nModified":1,"ok":1}.
type WriteResult struct {
	N         int64  `json:"n"`
	NModified *int64 `json:"nModified,omitempty"`
	OK        int    `json:"ok"`
}

func UpdateResult(matched, modified int64) WriteResult {
	return WriteResult{N: matched, NModified: &modified, OK: 1}
}

func DeleteResult(matched int64) WriteResult {
	return WriteResult{N: matched, OK: 1}
}
