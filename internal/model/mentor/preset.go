package mentor

import "strings"

// ScriptedMessage is one line of a demo conversation.
type ScriptedMessage struct {
	Sender  string `json:"sender"`
	Content string `json:"content"`
}

// Preset is a mentor personality used for demos: sample messages to analyze
// and a scripted conversation to preload.
type Preset struct {
	Key         string            `json:"key"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Samples     []string          `json:"samples"`
	Demo        []ScriptedMessage `json:"demo"`
}

// DefaultPresetKey is used when a caller does not pick a preset.
const DefaultPresetKey = "encouraging"

// FindPreset looks up a preset by key or display name, case-insensitively.
func FindPreset(key string) (Preset, bool) {
	key = strings.TrimSpace(key)
	for _, p := range Presets() {
		if strings.EqualFold(p.Key, key) || strings.EqualFold(p.Name, key) {
			return p, true
		}
	}
	return Preset{}, false
}

// Presets returns the built-in mentor personalities.
func Presets() []Preset {
	return []Preset{
		{
			Key:         "encouraging",
			Name:        "Encouraging Mentor",
			Description: "Warm, emoji-friendly, celebrates small wins and scaffolds one concept at a time.",
			Samples: []string{
				"Great question! 😊 This shows you're thinking critically. Let me build on what you already know - can you tell me what you've tried so far?",
				"You're making excellent progress! 👏 I can see you understand the foundation. Now, let's connect this to the next concept.",
				"I appreciate your effort here. Let's use the Socratic method - what do you think might happen if we approach it this way? 💭",
				"This is a common challenge, and asking about it shows real learning. Let's break it into smaller, manageable pieces. ✨",
				"You've demonstrated good understanding of the basics. Now let's scaffold up to the more complex parts together! 🚀",
			},
			Demo: []ScriptedMessage{
				{"student", "Hi... I'm supposed to start the Python basics but I'm completely lost. I've never coded before and feel really stupid."},
				{"mentor", "Hey there! Please don't feel that way! 😊 Seriously, everyone feels that way at the start. It's like learning a new language! I'm here to help you every step of the way. Let's start with just one tiny thing: a 'variable'. Sound good?"},
				{"student", "ok, i guess. what is it?"},
				{"mentor", "Awesome! ✨ A variable is just a box. You can put things in it. Let's make a box called `my_name` and put your name in it. Can you try to write what that might look like?"},
				{"student", "my_name = 'John'?"},
				{"mentor", "YES! You got it on the first try! 🚀 That's exactly it. See? You're already coding! Now, how would you make a new box called `my_age` and put your age in it?"},
				{"student", "my_age = 30"},
				{"mentor", "Perfect! You're on a roll. 👍 Now you have two 'boxes'. What do you think happens if you want to see what's inside the `my_name` box?"},
				{"student", "print(my_name)?"},
				{"mentor", "You got it! 👏 You're a natural at this. Okay, I think you've mastered variables. Let's take a break, great work today!"},
			},
		},
		{
			Key:         "direct",
			Name:        "Direct Mentor",
			Description: "Terse, mastery-first, corrects mistakes plainly and gates progress on fundamentals.",
			Samples: []string{
				"Let's apply Bloom's Taxonomy here. First, understand the concept. Then, we'll apply it to solve real problems.",
				"Here's the core principle. Practice this pattern: understand, apply, analyze. Let's start with a concrete example.",
				"Focus on mastery learning. We won't move forward until you've fully grasped this foundation. Let's verify your understanding.",
				"Let me demonstrate this using worked examples. Watch how I approach it, then you'll try with guided practice.",
				"The key is deliberate practice with immediate feedback. Try this problem, and I'll show you exactly where to improve.",
			},
			Demo: []ScriptedMessage{
				{"student", "How do I use a dictionary to store user data?"},
				{"mentor", "Your query is premature. We have not covered foundational data structures. You cannot build a roof before the foundation is laid. We will begin with lists."},
				{"student", "oh. okay. what's a list?"},
				{"mentor", "A list is an ordered, mutable collection of items. Use square brackets []. Create a list named `student_names` containing 'Alice', 'Bob', and 'Charlie'. Show me the code."},
				{"student", "student_names = ['Alice', 'Bob', 'Charlie']"},
				{"mentor", "Correct. Now, how do you access the second item in that list?"},
				{"student", "student_names[2]?"},
				{"mentor", "Incorrect. That is the third item. Indexing begins at 0. Try again."},
				{"student", "student_names[1]"},
				{"mentor", "Correct. You have demonstrated understanding of list creation and indexing. You may now proceed to dictionaries."},
			},
		},
		{
			Key:         "academic",
			Name:        "Academic Mentor",
			Description: "Formal, theory-first, names the pedagogy it applies.",
			Samples: []string{
				"Let us apply constructivist principles here. What prior knowledge can we activate to build upon?",
				"Consider the zone of proximal development: this challenge is slightly beyond your current level, which means optimal growth.",
				"Let us use metacognitive strategies. As we work through this, I shall model my thinking process explicitly.",
				"From a pedagogical perspective, we should employ spaced repetition. Let us review the foundation before adding complexity.",
				"Using cognitive load theory, let us chunk this information. We shall tackle each piece sequentially to avoid overwhelm.",
			},
			Demo: []ScriptedMessage{
				{"student", "I need help with functions in Python."},
				{"mentor", "Let us establish the theoretical foundation first. From a computational perspective, a function is an abstraction mechanism that encapsulates reusable logic. What is your current understanding of modular programming?"},
				{"student", "I'm not sure what that means."},
				{"mentor", "Understood. Let us apply constructivist principles. Consider what you know about mathematical functions: f(x) = 2x. The function takes an input and produces an output. This same paradigm applies in programming."},
				{"student", "So a function takes input and gives output?"},
				{"mentor", "Precisely. Now, let us examine the syntax. In Python, we use the `def` keyword followed by the function name and parameters. I shall model this: `def greet(name): return f'Hello, {name}'`. Do you observe the structure?"},
				{"student", "Yes, it starts with def, then the name, then parentheses."},
				{"mentor", "Excellent observation. You have identified the syntactic pattern. Now, applying zone of proximal development, create a function that takes two numbers and returns their sum."},
			},
		},
		{
			Key:         "casual",
			Name:        "Casual Mentor",
			Description: "Relaxed, analogy-driven, nudges the student to try things first.",
			Samples: []string{
				"Let's think about this together. What's your intuition telling you? Often your first instinct points us in the right direction.",
				"Makes sense? Let's use an analogy you already know... think of it like a recipe. Now apply that logic here.",
				"I'll show you a real-world example first. Once you see it in action, the abstract concept will click. Trust me on this.",
				"Let's do some active learning. Instead of me explaining everything, try it yourself and I'll guide you if you get stuck.",
				"Good question! Before I answer, let me ask you something that'll help you discover it yourself - what patterns do you notice?",
			},
			Demo: []ScriptedMessage{
				{"student", "I'm stuck on this loop thing."},
				{"mentor", "Alright, let's tackle this together. What's your intuition telling you about what a loop might do? Take a guess."},
				{"student", "Maybe it repeats something?"},
				{"mentor", "Exactly! That's it. A loop is just code that repeats. Think of it like a playlist that keeps playing songs over and over. Makes sense?"},
				{"student", "Yeah, I think so."},
				{"mentor", "Cool. So here's a real example... say you want to print 'Hello' five times. Instead of writing print('Hello') five times, you write a loop. Want to see it?"},
				{"student", "Yes please."},
				{"mentor", "Alright: `for i in range(5): print('Hello')`. That's it. The `range(5)` means 'do this 5 times'. Now you try - write a loop that prints your name 3 times."},
			},
		},
	}
}
