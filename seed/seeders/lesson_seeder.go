package seeders

import (
	"log"
	"strings"

	"gorm.io/gorm"

	"github.com/algoviz-app/algoviz_api/model"
)

// LessonSeeder loads the 75-problem visualization catalog
type LessonSeeder struct {
	db *gorm.DB
}

func NewLessonSeeder(db *gorm.DB) *LessonSeeder {
	return &LessonSeeder{db: db}
}

type problemData struct {
	Title      string
	Difficulty string
}

type chapterData struct {
	Category string
	Free     bool
	Problems []problemData
}

func (s *LessonSeeder) SeedLessons() error {
	lessons := s.buildCatalog()

	for _, lesson := range lessons {
		var existing model.Lesson
		if err := s.db.Where("id = ?", lesson.ID).First(&existing).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				if err := s.db.Create(&lesson).Error; err != nil {
					log.Printf("Error creating lesson %s: %v", lesson.Title, err)
					return err
				}
				log.Printf("Created lesson: %s", lesson.Title)
			} else {
				log.Printf("Error checking lesson %s: %v", lesson.Title, err)
				return err
			}
		} else {
			log.Printf("Lesson %s already exists, skipping", lesson.Title)
		}
	}

	log.Printf("Lesson seeding completed, %d lessons in catalog", len(lessons))
	return nil
}

func (s *LessonSeeder) buildCatalog() []model.Lesson {
	chapters := []chapterData{
		{
			Category: "Array",
			Free:     true,
			Problems: []problemData{
				{"Two Sum", "easy"},
				{"Best Time to Buy and Sell Stock", "easy"},
				{"Contains Duplicate", "easy"},
				{"Product of Array Except Self", "medium"},
				{"Maximum Subarray", "medium"},
				{"Maximum Product Subarray", "medium"},
				{"Find Minimum in Rotated Sorted Array", "medium"},
				{"Search in Rotated Sorted Array", "medium"},
				{"3Sum", "medium"},
				{"Container With Most Water", "medium"},
			},
		},
		{
			Category: "Binary",
			Free:     true,
			Problems: []problemData{
				{"Sum of Two Integers", "medium"},
				{"Number of 1 Bits", "easy"},
				{"Counting Bits", "easy"},
				{"Missing Number", "easy"},
				{"Reverse Bits", "easy"},
			},
		},
		{
			Category: "Dynamic Programming",
			Problems: []problemData{
				{"Climbing Stairs", "easy"},
				{"Coin Change", "medium"},
				{"Longest Increasing Subsequence", "medium"},
				{"Longest Common Subsequence", "medium"},
				{"Word Break", "medium"},
				{"Combination Sum IV", "medium"},
				{"House Robber", "medium"},
				{"House Robber II", "medium"},
				{"Decode Ways", "medium"},
				{"Unique Paths", "medium"},
				{"Jump Game", "medium"},
			},
		},
		{
			Category: "Graph",
			Problems: []problemData{
				{"Clone Graph", "medium"},
				{"Course Schedule", "medium"},
				{"Pacific Atlantic Water Flow", "medium"},
				{"Number of Islands", "medium"},
				{"Longest Consecutive Sequence", "medium"},
				{"Alien Dictionary", "hard"},
				{"Graph Valid Tree", "medium"},
				{"Number of Connected Components in an Undirected Graph", "medium"},
			},
		},
		{
			Category: "Interval",
			Problems: []problemData{
				{"Insert Interval", "medium"},
				{"Merge Intervals", "medium"},
				{"Non-overlapping Intervals", "medium"},
				{"Meeting Rooms", "easy"},
				{"Meeting Rooms II", "medium"},
			},
		},
		{
			Category: "Linked List",
			Problems: []problemData{
				{"Reverse Linked List", "easy"},
				{"Linked List Cycle", "easy"},
				{"Merge Two Sorted Lists", "easy"},
				{"Merge K Sorted Lists", "hard"},
				{"Remove Nth Node From End of List", "medium"},
				{"Reorder List", "medium"},
			},
		},
		{
			Category: "Matrix",
			Problems: []problemData{
				{"Set Matrix Zeroes", "medium"},
				{"Spiral Matrix", "medium"},
				{"Rotate Image", "medium"},
				{"Word Search", "medium"},
			},
		},
		{
			Category: "String",
			Problems: []problemData{
				{"Longest Substring Without Repeating Characters", "medium"},
				{"Longest Repeating Character Replacement", "medium"},
				{"Minimum Window Substring", "hard"},
				{"Valid Anagram", "easy"},
				{"Group Anagrams", "medium"},
				{"Valid Parentheses", "easy"},
				{"Valid Palindrome", "easy"},
				{"Longest Palindromic Substring", "medium"},
				{"Palindromic Substrings", "medium"},
				{"Encode and Decode Strings", "medium"},
			},
		},
		{
			Category: "Tree",
			Problems: []problemData{
				{"Maximum Depth of Binary Tree", "easy"},
				{"Same Tree", "easy"},
				{"Invert Binary Tree", "easy"},
				{"Binary Tree Maximum Path Sum", "hard"},
				{"Binary Tree Level Order Traversal", "medium"},
				{"Serialize and Deserialize Binary Tree", "hard"},
				{"Subtree of Another Tree", "easy"},
				{"Construct Binary Tree from Preorder and Inorder Traversal", "medium"},
				{"Validate Binary Search Tree", "medium"},
				{"Kth Smallest Element in a BST", "medium"},
				{"Lowest Common Ancestor of a BST", "medium"},
				{"Implement Trie (Prefix Tree)", "medium"},
				{"Design Add and Search Words Data Structure", "medium"},
				{"Word Search II", "hard"},
			},
		},
		{
			Category: "Heap",
			Problems: []problemData{
				{"Top K Frequent Elements", "medium"},
				{"Find Median from Data Stream", "hard"},
			},
		},
	}

	var lessons []model.Lesson
	order := 0
	for _, chapter := range chapters {
		for _, problem := range chapter.Problems {
			order++
			lessons = append(lessons, model.Lesson{
				ID:         slugify(problem.Title),
				Title:      problem.Title,
				Category:   chapter.Category,
				Difficulty: problem.Difficulty,
				Order:      order,
				TotalSteps: stepsFor(problem.Difficulty),
				Premium:    !chapter.Free,
				IsActive:   true,
			})
		}
	}
	return lessons
}

func stepsFor(difficulty string) int {
	switch difficulty {
	case "easy":
		return 8
	case "hard":
		return 16
	default:
		return 12
	}
}

func slugify(title string) string {
	slug := strings.ToLower(title)
	var b strings.Builder
	lastDash := false
	for _, r := range slug {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
