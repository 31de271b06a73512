package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"coltrane/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeCaseResult(rec model.CaseRecord) ([]byte, error) {
	return json.Marshal(rec)
}

func DecodeCaseResult(data []byte) (model.CaseRecord, error) {
	var rec model.CaseRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.CaseRecord{}, err
	}
	if err := checkVersion(rec.VersionedRecord); err != nil {
		return model.CaseRecord{}, err
	}
	return rec, nil
}

func EncodeForcing(rec model.ForcingRecord) ([]byte, error) {
	return json.Marshal(rec)
}

func DecodeForcing(data []byte) (model.ForcingRecord, error) {
	var rec model.ForcingRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.ForcingRecord{}, err
	}
	if err := checkVersion(rec.VersionedRecord); err != nil {
		return model.ForcingRecord{}, err
	}
	return rec, nil
}

func EncodeParameters(rec model.ParametersRecord) ([]byte, error) {
	return json.Marshal(rec)
}

func DecodeParameters(data []byte) (model.ParametersRecord, error) {
	var rec model.ParametersRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.ParametersRecord{}, err
	}
	if err := checkVersion(rec.VersionedRecord); err != nil {
		return model.ParametersRecord{}, err
	}
	return rec, nil
}

func EncodeSweepSummary(rec model.SweepRecord) ([]byte, error) {
	return json.Marshal(rec)
}

func DecodeSweepSummary(data []byte) (model.SweepRecord, error) {
	var rec model.SweepRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.SweepRecord{}, err
	}
	if err := checkVersion(rec.VersionedRecord); err != nil {
		return model.SweepRecord{}, err
	}
	return rec, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return fmt.Errorf("%w: schema=%d codec=%d, want schema=%d codec=%d",
			ErrVersionMismatch, v.SchemaVersion, v.CodecVersion, CurrentSchemaVersion, CurrentCodecVersion)
	}
	return nil
}

// Stamp fills a VersionedRecord with the current schema and codec versions.
func Stamp() model.VersionedRecord {
	return model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}
