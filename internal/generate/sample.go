package generate

import "encoding/json"

// SampleDraft is the canned model output served by the offline mock
// provider, so a server without API keys can still produce worksheets.
func SampleDraft() json.RawMessage {
	b, _ := json.Marshal(draftOutput{
		Title:   "Number Bonds and Times Tables",
		Summary: "Ten quick questions on addition, multiplication and ordering numbers.",
		HTML: `<h2>Number Bonds and Times Tables</h2>
<fieldset disabled><p>Example: 2 + 3 = <input type="text" data-answer="5" value="5"></p></fieldset>
<ol>
<li>7 + 8 = <input type="text" data-answer="15"></li>
<li>6 x 4 = <input type="text" data-answer="24"></li>
<li>What is half of 18? <input type="text" data-answer="9"></li>
<li>100 - 37 = <input type="text" data-answer="63"></li>
<li>Write 0.5 as a fraction. <input type="text" data-answer="1/2"></li>
<li>Order from smallest to largest: 12, 3, 7 <input type="text" data-answer="3, 7, 12"></li>
<li>9 x 9 = <input type="text" data-answer="81"></li>
<li>Is 21 odd or even? <input type="text" data-answer="odd"></li>
<li>Round 46 to the nearest ten. <input type="text" data-answer="50"></li>
<li>How many sides does a hexagon have? <input type="text" data-answer="6|six"></li>
</ol>`,
	})
	return b
}
