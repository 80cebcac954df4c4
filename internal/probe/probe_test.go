// SPDX-License-Identifier: MPL-2.0

package probe

import "testing"

func TestOutput_Succeeded(t *testing.T) {
	t.Parallel()

	if !(Output{}).Succeeded() {
		t.Error("zero Output should count as success")
	}
	if (Output{ExitCode: 1}).Succeeded() {
		t.Error("non-zero exit should not count as success")
	}
	if (Output{Err: errTest}).Succeeded() {
		t.Error("spawn error should not count as success")
	}
}
