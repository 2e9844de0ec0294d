// Package locators holds the XPath expressions that describe the structure
// of a Google Form page. Relative locators (starting with ".") are meant to
// be evaluated from a question container; absolute ones from the document.
package locators

// Locator is a named XPath expression.
type Locator struct {
	Name  string
	XPath string
}

func (l Locator) String() string { return l.Name }

var (
	// Question matches a list item that has a heading followed by a
	// description block.
	Question = Locator{"question", ".//div[@role='listitem' and .//div[@role='heading']/following-sibling::div[1]]"}
	Heading  = Locator{"heading", ".//div[@role='heading']"}
	// Description is the block right after the heading; its presence marks
	// a real question.
	Description = Locator{"description", ".//div[@role='heading']/following-sibling::div[1]"}

	Button     = Locator{"button", ".//div[@role='button'] | .//button"}
	Checkbox   = Locator{"checkbox", ".//input[@type='checkbox'] | .//div[@role='checkbox']"}
	Radio      = Locator{"radio", ".//div[@role='radio'] | .//input[@type='radio']"}
	TextInput  = Locator{"text input", ".//input[@type='text' or @type='email' or @type='url'] | .//textarea"}
	DateInput  = Locator{"date input", ".//input[@type='date']"}
	TimeHour   = Locator{"time hour", ".//input[@type='number' and @max='23']"}
	TimeMinute = Locator{"time minute", ".//input[@type='number' and @max='59']"}

	Listbox       = Locator{"listbox", ".//div[@role='listbox']"}
	ListboxOption = Locator{"listbox option", ".//div[@role='option']"}

	// List is the attached-files list of an upload question; Any matches
	// its entries.
	List = Locator{"list", ".//div[@role='list']"}
	Any  = Locator{"any child", "./*"}

	FileInput = Locator{"file input", ".//input[@type='file']"}
	Picker    = Locator{"picker frame", ".//iframe[contains(@src, 'picker')]"}

	Submit = Locator{"submit button", "//div[@role='button' and @aria-label='Submit']"}
	// NextFirst is the only non-submit action on the first page.
	NextFirst = Locator{"next button (first page)", "(//div[@role='list']/following-sibling::div[1]//div[@role='button' and not(@aria-label='Submit')])[1]"}
	// Next is the second non-submit action once a Back button exists.
	Next = Locator{"next button", "(//div[@role='list']/following-sibling::div[1]//div[@role='button' and not(@aria-label='Submit')])[2]"}
)

// NextFor returns the locator of the next-page control for a zero-based
// page index.
func NextFor(page int) Locator {
	if page == 0 {
		return NextFirst
	}
	return Next
}

// RemoveFramesScript deletes every iframe from the current document.
const RemoveFramesScript = "document.querySelectorAll('iframe').forEach(iframe => iframe.remove())"
