package domain

import (
	"encoding/json"
	"fmt"
)

// LoadRequest is the canonical intermediate entity of one invocation. It is
// filled by three independent steps (execution context, deployment
// configuration, notification), validated once and never mutated afterwards.
type LoadRequest struct {
	InvokedFunctionArn  string `json:"invokedFunctionArn"`
	NeptuneS3IAMRoleArn string `json:"neptuneS3IamRoleArn"`
	RdfLoadWorkflowArn  string `json:"rdfLoadWorkflowArn"`
	SourceURI           string `json:"sourceUri"`
	Format              Format `json:"format"`
	RegionCode          string `json:"regionCode"`
	IDBaseInternal      string `json:"idBaseInternal"`
}

// Validate requires all seven fields. The first empty field, in declaration
// order, is reported by name.
func (r *LoadRequest) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"invokedFunctionArn", r.InvokedFunctionArn},
		{"neptuneS3IamRoleArn", r.NeptuneS3IAMRoleArn},
		{"rdfLoadWorkflowArn", r.RdfLoadWorkflowArn},
		{"sourceUri", r.SourceURI},
		{"format", string(r.Format)},
		{"regionCode", r.RegionCode},
		{"idBaseInternal", r.IDBaseInternal},
	}
	for _, f := range fields {
		if f.value == "" {
			return NewInputError(ErrInvalidLoadRequest, "Load request error: %s not set", f.name)
		}
	}
	return nil
}

// JSON renders the request for diagnostics.
func (r *LoadRequest) JSON() string {
	data, err := json.MarshalIndent(r, "", "    ")
	if err != nil {
		return fmt.Sprintf("%+v", *r)
	}
	return string(data)
}

func (r *LoadRequest) String() string {
	return fmt.Sprintf("LoadRequest(%s %s)", r.SourceURI, r.Format)
}
