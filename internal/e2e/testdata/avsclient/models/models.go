// Package models holds the model types the generated avs client refers to.
package models

type CloudError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

type Quota struct {
	QuotaEnabled string `json:"quotaEnabled,omitempty"`
}

type Operation struct {
	Name string `json:"name,omitempty"`
}

type OperationList struct {
	Value    []Operation `json:"value,omitempty"`
	NextLink string      `json:"nextLink,omitempty"`
}

func (l OperationList) Continuation() string { return l.NextLink }

type PrivateCloud struct {
	Name     string `json:"name,omitempty"`
	Location string `json:"location,omitempty"`
}

type PrivateCloudList struct {
	Value    []PrivateCloud `json:"value,omitempty"`
	NextLink string         `json:"nextLink,omitempty"`
}

func (l PrivateCloudList) Continuation() string { return l.NextLink }
