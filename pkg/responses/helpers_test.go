package responses

import (
	"sync"
	"time"

	"github.com/EnamSon/gformfiller/pkg/browser/browsertest"
	"github.com/EnamSon/gformfiller/pkg/locators"
)

// question builds a valid question container with a heading.
func question(label string) *browsertest.Element {
	q := browsertest.NewElement("question:"+label).WithAttr("role", "listitem")
	q.Add(locators.Heading.XPath, browsertest.NewElement("heading").WithText("  "+label+"  "))
	q.Add(locators.Description.XPath, browsertest.NewElement("description"))
	return q
}

type captures struct {
	mu     sync.Mutex
	labels []string
}

func (c *captures) capture(label string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.labels = append(c.labels, label)
}

func (c *captures) all() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.labels...)
}

func testDeps(session *browsertest.Session, c *captures) Deps {
	return Deps{
		Session: session,
		Timeouts: Timeouts{
			Picker:     50 * time.Millisecond,
			FileInput:  50 * time.Millisecond,
			Upload:     50 * time.Millisecond,
			OptionWait: 50 * time.Millisecond,
		},
		Capture: c.capture,
	}
}
