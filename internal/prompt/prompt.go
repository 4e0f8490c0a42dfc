// Package prompt renders the instruction text for each analysis task.
// The builders are pure: same inputs, same prompt. Each prompt pins the
// output format to fixed markers (Matching Score:, Justification:,
// Missing Skills:, Optimized Resume:) that the parse package looks for,
// so the two packages must evolve together.
package prompt

import "fmt"

// Keywords asks for the top 10 keywords of a job description as a
// numbered list.
func Keywords(jobDescription string) string {
	return fmt.Sprintf(`Please analyze the following job description and identify the top 10 most relevant keywords and phrases. Consider both the frequency of terms and the contextual importance of concepts within the description. Prioritize terms that accurately reflect the core responsibilities, required skills, and overall focus of the role.

[JOB DESCRIPTION HERE]
%s

Output the top 10 keywords/phrases in a clear, numbered list.`, jobDescription)
}

// Match asks for a resume-to-job-description match score with
// justification and missing skills.
func Match(jobDescription, resume string) string {
	return fmt.Sprintf(`starting over with information, not using anything from prior prompts. You are an expert in Applicant Tracking Systems (ATS) and resume analysis. Your task is to analyze a job description and a resume, then provide a matching score indicating how well the resume aligns with the job description.

**Instructions:**

1.  **Analyze the Job Description:** Identify key skills, responsibilities, qualifications, and keywords from the provided job description.
2.  **Analyze the Resume:** Extract relevant skills, experience, and qualifications from the provided resume.
3.  **Calculate a Matching Score:** Based on the analysis, determine the percentage match between the resume and the job description. Consider factors such as:
    * Keyword matching (exact and related terms)
    * Skill alignment
    * Experience relevance
    * Qualification fulfillment
4.  **Provide the Output:** Output the matching score as a percentage number, followed by a brief justification of the score, followed by a single line listing missing skills. Only identify missing skills that are explicitly mentioned in the job description.

**Input:**

**Job Description:**

%s

**Resume:**

%s

**Output:**

Matching Score: [Percentage]%%

Justification: [Brief explanation of how the score was calculated, highlighting key matches and mismatches.]

Missing Skills: [comma-separated list of skills from the job description absent from the resume, all on one line]`, jobDescription, resume)
}

// Optimize asks for a rewritten resume plus its new matching score.
func Optimize(jobDescription, resume string) string {
	return fmt.Sprintf(`You are an expert in Applicant Tracking Systems (ATS) and resume optimization. Your task is to analyze a job description and a resume, then modify the resume to achieve a 95%% or higher match score with the ATS. You must enhance the resume by adding relevant keywords and phrases from the job description without altering the candidate's actual experience. You can add bullet points, expand the skills section, and refine the language used.

**Instructions:**

1.  Forgetting info from prior prompts. **Analyze the Job Description:** Identify key skills, responsibilities, qualifications, and keywords from the provided job description.
2.  **Analyze the Resume:** Extract relevant skills, experience, and qualifications from the provided resume.
3.  **Optimize the Resume:** Modify the resume to incorporate keywords and phrases from the job description, emphasizing relevant skills and experiences.
    * Add keywords and phrases to the summary, experience bullet points, and skills section.
    * Use language from the job description to describe the candidate's experience.
    * Ensure that the modifications are consistent with the candidate's actual experience.
    * Do not change any dates, companies, or job titles.
4.  **Calculate and Provide the Matching Score:** Calculate the percentage match between the optimized resume and the job description.
5.  **Output the Optimized Resume:** Output the optimized resume in the specified text format.

**Input:**

**Job Description:**

%s

**Resume:**

%s

**Output:**

Matching Score: [Percentage]%%

Optimized Resume:

SUMMARY
[Optimized Summary Here]

EXPERIENCE
[Optimized Experience Section Here]

CERTS
[Optimized Certs section here]

EDUCATION
[Optimized Education section here]

TECH & SKILLS
[Optimized Tech & Skills section here]`, jobDescription, resume)
}

// OptimizeEscalate is the second optimization pass. It feeds the first
// pass back in with its score and pushes for denser keyword coverage.
func OptimizeEscalate(jobDescription, priorResume string, priorScore int) string {
	return fmt.Sprintf(`You are an expert in Applicant Tracking Systems (ATS) and resume optimization. A previous optimization pass of this resume against the job description below scored %d%%, which is not high enough. Rewrite the resume again to push the match score higher.

**Instructions:**

1.  **Analyze the Job Description:** Identify every skill, responsibility, qualification, and keyword, including ones the previous pass missed.
2.  **Analyze the Previously Optimized Resume:** Find sections where job-description terminology is still absent or diluted.
3.  **Increase Keyword Coverage:** Work more of the job description's exact terms into the summary, experience bullet points, and skills section. Add bullet points where needed.
    * Do not invent experience the candidate does not have.
    * Do not change any dates, companies, or job titles.
4.  **Calculate and Provide the Matching Score:** Calculate the percentage match between the newly optimized resume and the job description.
5.  **Output the Optimized Resume:** Use the exact output format below.

**Input:**

**Job Description:**

%s

**Previously Optimized Resume (scored %d%%):**

%s

**Output:**

Matching Score: [Percentage]%%

Optimized Resume:

[Full optimized resume text here]`, priorScore, jobDescription, priorScore, priorResume)
}
