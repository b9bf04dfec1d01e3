package enums

import "fmt"

// ContainerType selects the container price column by purchase mode.
type ContainerType string

const (
	ContainerTypeOneTime      ContainerType = "otp"
	ContainerTypeSubscription ContainerType = "subscription"
)

// String implements fmt.Stringer.
func (c ContainerType) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ContainerType.
func (c ContainerType) IsValid() bool {
	return c == ContainerTypeOneTime || c == ContainerTypeSubscription
}

// ParseContainerType converts raw input into a ContainerType.
func ParseContainerType(value string) (ContainerType, error) {
	switch ContainerType(value) {
	case ContainerTypeOneTime:
		return ContainerTypeOneTime, nil
	case ContainerTypeSubscription:
		return ContainerTypeSubscription, nil
	}
	return "", fmt.Errorf("invalid container type %q", value)
}

// ContainerTier selects the container price row by upgrade level.
type ContainerTier string

const (
	ContainerTierBase    ContainerTier = "base"
	ContainerTierUpgrade ContainerTier = "upgrade"
)

// String implements fmt.Stringer.
func (c ContainerTier) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ContainerTier.
func (c ContainerTier) IsValid() bool {
	return c == ContainerTierBase || c == ContainerTierUpgrade
}

// ParseContainerTier converts raw input into a ContainerTier.
func ParseContainerTier(value string) (ContainerTier, error) {
	switch ContainerTier(value) {
	case ContainerTierBase:
		return ContainerTierBase, nil
	case ContainerTierUpgrade:
		return ContainerTierUpgrade, nil
	}
	return "", fmt.Errorf("invalid container tier %q", value)
}
