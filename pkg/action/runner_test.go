package action_test

import (
	"context"
	"time"
	"unicode/utf8"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/text/encoding/traditionalchinese"

	"github.com/psplover16/line-ai-rebot/pkg/action"
)

var _ = Describe("Runner", func() {
	var runner *action.Runner

	BeforeEach(func() {
		runner = action.NewRunner(action.RunnerConfig{})
	})

	It("returns trimmed stdout", func() {
		out, err := runner.Run(context.Background(), action.Spec{
			Program: "sh",
			Args:    []string{"-c", "echo '  hello  '"},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("hello"))
	})

	It("falls back to stderr when stdout is empty", func() {
		out, err := runner.Run(context.Background(), action.Spec{
			Program: "sh",
			Args:    []string{"-c", "echo warned >&2"},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("warned"))
	})

	It("returns an error for a failing command", func() {
		_, err := runner.Run(context.Background(), action.Spec{
			Program: "sh",
			Args:    []string{"-c", "exit 3"},
		})
		Expect(err).To(HaveOccurred())
	})

	It("kills commands that exceed the timeout", func() {
		runner = action.NewRunner(action.RunnerConfig{Timeout: 100 * time.Millisecond})

		start := time.Now()
		_, err := runner.Run(context.Background(), action.Spec{
			Program: "sh",
			Args:    []string{"-c", "sleep 10"},
		})
		Expect(err).To(HaveOccurred())
		Expect(time.Since(start)).To(BeNumerically("<", 5*time.Second))
	})

	Context("with big5 output decoding", func() {
		BeforeEach(func() {
			runner = action.NewRunner(action.RunnerConfig{Encoding: action.EncodingBig5})
		})

		It("decodes Big5 console output to UTF-8", func() {
			// "現在時間" as a Traditional Chinese console would emit it.
			encoded, err := traditionalchinese.Big5.NewEncoder().Bytes([]byte("現在時間"))
			Expect(err).NotTo(HaveOccurred())

			out, err := runner.Run(context.Background(), action.Spec{
				Program: "sh",
				Args:    []string{"-c", "printf '%s' " + shellQuote(encoded)},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal("現在時間"))
		})

		It("leaves ASCII output untouched", func() {
			out, err := runner.Run(context.Background(), action.Spec{
				Program: "sh",
				Args:    []string{"-c", "echo 'Volume Serial Number is 1A2B-3C4D'"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal("Volume Serial Number is 1A2B-3C4D"))
		})

		It("decodes Big5 bytes that also happen to be valid UTF-8", func() {
			// 0xC2 0xA1 is a Big5 hanzi and, read as UTF-8, U+00A1.
			out, err := runner.Run(context.Background(), action.Spec{
				Program: "sh",
				Args:    []string{"-c", `printf '\302\241'`},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(out).NotTo(Equal("¡"))
			Expect(utf8.ValidString(out)).To(BeTrue())
		})
	})

	It("passes UTF-8 output through when no encoding is configured", func() {
		out, err := runner.Run(context.Background(), action.Spec{
			Program: "sh",
			Args:    []string{"-c", "echo 現在時間"},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("現在時間"))
	})
})

// shellQuote renders raw bytes as a single-quoted shell word. The Big5
// encodings used in tests contain no single quotes.
func shellQuote(raw []byte) string {
	return "'" + string(raw) + "'"
}
