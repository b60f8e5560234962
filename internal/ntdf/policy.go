package ntdf

import "github.com/google/uuid"

// NewPolicy builds an embeddedPlaintext policy for a fresh collection, with a
// fresh random UUID identifying the policy instance.
func NewPolicy(dataAttributes, dissem []string) Policy {
	if dataAttributes == nil {
		dataAttributes = []string{}
	}
	if dissem == nil {
		dissem = []string{}
	}
	return Policy{
		UUID: uuid.NewString(),
		Body: PolicyBody{
			DataAttributes: dataAttributes,
			Dissem:         dissem,
		},
	}
}
