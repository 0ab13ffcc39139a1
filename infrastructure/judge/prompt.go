package judge

// DefaultCriteria is the grading measure given to the judge when the run
// configuration does not override it. The four dimensions target
// retrieval-augmented answers, where verbosity and single-source bias are
// the common failure modes.
const DefaultCriteria = "comprehensiveness: How much detail does the answer provide to cover all the aspects and details of the " +
	"question? A comprehensive answer should be thorough and complete, without being redundant or irrelevant. " +
	"A comprehensive answer should not leave out any important points or provide irrelevant information.\n" +
	"diversity: How varied and rich is the answer in providing different perspectives and insights on the " +
	"question? A diverse answer should be multi-faceted, offering different viewpoints and angles, and should " +
	"provide different sources and evidence to support the answer.\n" +
	"directness: How specifically and clearly does the answer address the question? A direct answer should " +
	"provide a clear and concise response without irrelevant or unnecessary information.\n" +
	"empowerment: How well does the answer help the reader understand and make informed judgements about the " +
	"topic without being misled or making fallacious assumptions. Evaluate each answer on the quality of " +
	"explanation, reasoning, and sources behind the claims."

// systemPrompt instructs the judge to grade two responses against the
// criteria and reply with a strict JSON verdict.
const systemPrompt = "You are a helpful assistant responsible for grading two answers to a question provided by two " +
	"different people.\n" +
	"Given a question and two responses (Response A and Response B), assess which response is better according " +
	"to the following measure:\n{{.Criteria}}\n" +
	"Your assessment should include two parts:\n" +
	"- Winner: either \"A\" (if Response A is better), \"B\" (if Response B is better), or \"Tie\" if they are " +
	"fundamentally similar and the differences are immaterial.\n" +
	"- Explanation: a short explanation of why you chose the winner with respect to the measure described above.\n" +
	"Format your response as a JSON object with structure:\n" +
	`{"winner": "A|B|Tie", "explanation": "Response <winner> is better because <your explanation>."}`

// userPrompt presents the question and both responses in fixed slots.
// Response A is always the first argument to Judge; positional bias
// correction happens upstream via swapped-order double judging.
const userPrompt = "---Question---\n{{.Question}}\n" +
	"---Response A---\n{{.ResponseA}}\n" +
	"---Response B---\n{{.ResponseB}}\n" +
	"Assess which response is better according to the measure above."
