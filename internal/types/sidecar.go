package types

// SidecarTest is one test's recorded steps within a SuiteSidecar.
type SidecarTest struct {
	Name  string         `json:"name"`
	Steps []RecordedStep `json:"steps"`
}

// SuiteSidecar is the persisted source of truth linking a generated script
// file back to the recorded intent that produced it. One sidecar per suite,
// written to "<suite>.steps.json" alongside the script.
//
// The sidecar's test list is always a prefix-order subset of the owning
// TestSuite's tests; a test present in the suite but absent from the
// sidecar is out-of-date and must be re-derived agentically.
type SuiteSidecar struct {
	Tests []SidecarTest `json:"tests"`
}

// TestByName returns the sidecar entry for name, or nil if absent.
func (s *SuiteSidecar) TestByName(name string) *SidecarTest {
	for i := range s.Tests {
		if s.Tests[i].Name == name {
			return &s.Tests[i]
		}
	}
	return nil
}
